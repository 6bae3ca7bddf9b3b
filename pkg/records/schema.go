package records

// schema.go is the single table of positional contract layouts. Column order
// is the order the contract returns values in and must not change.

// Schema names the columns of one entity in contract order. Each column maps
// to the struct field whose json tag carries the same name.
type Schema struct {
	Entity  string
	Columns []string
}

var (
	KnowledgeBaseSchema = Schema{Entity: "KnowledgeBase", Columns: []string{"id", "title", "group", "content"}}
	CustomerSchema      = Schema{Entity: "Customer", Columns: []string{"id", "name", "email", "phone"}}
	ProjectSchema       = Schema{Entity: "Project", Columns: []string{"id", "name", "customer", "status", "details"}}
	CountsSchema        = Schema{Entity: "Counts", Columns: []string{"knowledge_base_count", "customer_count", "project_count"}}
)

// Schemas returns every schema, in the order they are documented.
func Schemas() []Schema {
	return []Schema{KnowledgeBaseSchema, CustomerSchema, ProjectSchema, CountsSchema}
}

// KnowledgeBase is a knowledge-base entry.
type KnowledgeBase struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Group   string `json:"group"`
	Content string `json:"content"`
}

// Customer is a customer record.
type Customer struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Project is a project record. Customer holds whatever the contract stores
// for the customer reference.
type Project struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Details  string `json:"details"`
}

// Counts holds the per-entity record totals.
type Counts struct {
	KnowledgeBaseCount uint64 `json:"knowledge_base_count"`
	CustomerCount      uint64 `json:"customer_count"`
	ProjectCount       uint64 `json:"project_count"`
}

// Codecs for every entity. Construction only fails on a programming error.
var (
	KnowledgeBases = MustCodec[KnowledgeBase](KnowledgeBaseSchema)
	Customers      = MustCodec[Customer](CustomerSchema)
	Projects       = MustCodec[Project](ProjectSchema)
	CountsCodec    = MustCodec[Counts](CountsSchema)
)
