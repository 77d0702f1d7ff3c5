package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fracker/fracker/event"
	"github.com/fracker/fracker/hooking"
	"github.com/fracker/fracker/tracing"
	"github.com/fracker/fracker/value"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send a synthetic trace through a backend.",
	Long: "`probe` opens a trace session with the configured backend and " +
		"replays a small request with nested calls, including a return " +
		"value that has no JSON form. Point it at a collector to check the " +
		"stream end to end.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyProbeFlags(cmd)

		h, err := tracing.Open(cmd.Context(), tracing.Options{
			Backend: cfg.Backend,
			Host:    cfg.Host,
			Port:    cfg.Port,
			Output:  cfg.Output,
			Source:  tracing.RequestFunc(probeRequest),
			Logger:  logger,
		})
		if err != nil {
			return err
		}

		domain := hooking.NewHookableBase()
		domain.OnPanic = func(_ hooking.Hook, r any) {
			logger.Error("Hook panicked", zap.Any("panic", r))
		}
		tracing.Attach(domain, h)

		replayProbe(domain)

		if err := h.Close(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), h.Filename())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().String("backend", "",
		"Trace backend: "+strings.Join(tracing.Backends(), ", "))
	probeCmd.Flags().String("host", "", "Collector host")
	probeCmd.Flags().String("port", "", "Collector port")
	probeCmd.Flags().String("output", "", "Output of the file backends")
}

func applyProbeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	for name, dst := range map[string]*string{
		"backend": &cfg.Backend,
		"host":    &cfg.Host,
		"port":    &cfg.Port,
		"output":  &cfg.Output,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
}

func probeRequest() event.RequestContext {
	return event.RequestContext{
		Server: map[string]string{
			"HTTP_HOST":      "localhost",
			"REQUEST_METHOD": "POST",
			"REQUEST_URI":    "/probe.php?step=1",
		},
		Get:    map[string]string{"step": "1"},
		Post:   map[string]string{"name": "probe"},
		Cookie: map[string]string{},
		Input:  strings.NewReader("name=probe"),
	}
}

// replayProbe raises the hooks of a short request: a main script that
// includes a file, calls a function returning a number, and opens a stream
// whose handle cannot be encoded.
func replayProbe(domain hooking.Hookable) {
	main := &event.Frame{ID: 1, Level: 1, Function: "{main}",
		File: "/srv/probe.php", Line: 0}
	include := &event.Frame{ID: 2, Level: 2, Function: "require_once",
		File: "/srv/probe.php", Line: 3, IncludeFile: "/srv/lib.php"}
	count := &event.Frame{ID: 3, Level: 2, Function: "strlen",
		File: "/srv/probe.php", Line: 5,
		Arguments: []event.Argument{{Name: "string", Value: "probe"}}}
	open := &event.Frame{ID: 4, Level: 2, Function: "fopen",
		File: "/srv/probe.php", Line: 6,
		Arguments: []event.Argument{
			{Name: "filename", Value: "php://memory"},
			{Name: "mode", Value: "r"},
		}}

	raise := func(pos *hooking.HookPos, item, detail any) {
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    pos,
			Item:   item,
			Detail: detail,
		})
	}

	raise(tracing.HookPosRequestBegin, nil, nil)
	raise(tracing.HookPosFunctionEntry, main, nil)

	raise(tracing.HookPosFunctionEntry, include, nil)
	raise(tracing.HookPosFunctionExit, include, nil)
	raise(tracing.HookPosReturnValue, include, true)

	raise(tracing.HookPosFunctionEntry, count, nil)
	raise(tracing.HookPosFunctionExit, count, nil)
	raise(tracing.HookPosReturnValue, count, 5)

	raise(tracing.HookPosFunctionEntry, open, nil)
	raise(tracing.HookPosFunctionExit, open, nil)
	raise(tracing.HookPosReturnValue, open,
		value.Resource{ID: 5, Kind: "stream"})
	raise(tracing.HookPosAssignment, main, &event.Assignment{
		Variable: "$fp", Operator: "=", File: "/srv/probe.php", Line: 6,
		Value: value.Resource{ID: 5, Kind: "stream"},
	})

	raise(tracing.HookPosFunctionExit, main, nil)
	raise(tracing.HookPosTraceEnd, nil, nil)
}
