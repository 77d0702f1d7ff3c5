package datarecording

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fatih/structs"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoScheme = "mongodb://"

const mongoTimeout = 10 * time.Second

// MongoRecorder writes data into a MongoDB database. Each table is a
// collection and each entry is a document keyed by field name.
type MongoRecorder struct {
	client    *mongo.Client
	db        *mongo.Database
	lock      sync.Mutex
	batchSize int

	tables     map[string]*table
	tableNames []string
	entryCount int

	exec      *execRecorder
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// mongoDatabase returns the database named by the path of the URI, or a
// generated name if the path is empty.
func mongoDatabase(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	name := strings.Trim(u.Path, "/")
	if name == "" {
		name = "fracker_" + xid.New().String()
	}

	return name, nil
}

// NewMongoRecorder connects to the database named by a URI such as
// mongodb://host:27017/traces.
func NewMongoRecorder(uri string) (*MongoRecorder, error) {
	name, err := mongoDatabase(uri)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	r := &MongoRecorder{
		client:    client,
		db:        client.Database(name),
		batchSize: 10000,
		tables:    make(map[string]*table),
	}

	r.exec = newExecRecorder(r)
	r.exec.Start()

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

// Database returns the name of the database written to.
func (r *MongoRecorder) Database() string {
	return r.db.Name()
}

// mongoDocument converts an entry to a document whose keys follow the
// field order of the struct.
func mongoDocument(entry any) bson.D {
	fields := structs.Fields(entry)
	doc := make(bson.D, 0, len(fields))

	for _, f := range fields {
		doc = append(doc, bson.E{Key: f.Name(), Value: f.Value()})
	}

	return doc
}

// mongoIndex returns the index created for a collection. Entries that carry
// a session are looked up by it.
func mongoIndex(sampleEntry any) (mongo.IndexModel, bool) {
	if _, ok := structs.New(sampleEntry).FieldOk("Session"); !ok {
		return mongo.IndexModel{}, false
	}

	return mongo.IndexModel{Keys: bson.D{{Key: "Session", Value: 1}}}, true
}

// CreateTable registers a collection and creates its index.
func (r *MongoRecorder) CreateTable(tableName string, sampleEntry any) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if index, ok := mongoIndex(sampleEntry); ok {
		ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
		defer cancel()

		_, err := r.db.Collection(tableName).Indexes().CreateOne(ctx, index)
		if err != nil {
			panic(fmt.Errorf("failed to index %s: %w", tableName, err))
		}
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry.
func (r *MongoRecorder) InsertData(tableName string, entry any) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.closed {
		return
	}

	table, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flush()
	}
}

// ListTables returns the tables in creation order.
func (r *MongoRecorder) ListTables() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	tables := make([]string, len(r.tableNames))
	copy(tables, r.tableNames)

	return tables
}

// Flush writes the buffered entries of every table.
func (r *MongoRecorder) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.flush()
}

func (r *MongoRecorder) flush() {
	if r.closed || r.entryCount == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	for _, tableName := range r.tableNames {
		table := r.tables[tableName]
		if len(table.entries) == 0 {
			continue
		}

		docs := make([]any, len(table.entries))
		for i, entry := range table.entries {
			docs[i] = mongoDocument(entry)
		}

		_, err := r.db.Collection(tableName).InsertMany(ctx, docs,
			options.InsertMany().SetOrdered(true))
		if err != nil {
			panic(fmt.Errorf("failed to insert into %s: %w", tableName, err))
		}

		table.entries = nil
	}

	r.entryCount = 0
}

// Close records the end of the execution, flushes, and disconnects.
func (r *MongoRecorder) Close() error {
	r.closeOnce.Do(func() {
		r.exec.End()

		r.lock.Lock()
		defer r.lock.Unlock()

		r.flush()
		r.closed = true

		ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
		defer cancel()

		r.closeErr = r.client.Disconnect(ctx)
	})

	return r.closeErr
}

var _ DataRecorder = (*MongoRecorder)(nil)
