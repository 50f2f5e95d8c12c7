package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/queryforge/queryforge-engine/pkg/qdrant"
	"github.com/queryforge/queryforge-engine/pkg/schema"
)

func buildModel(t *testing.T) *schema.Model {
	t.Helper()
	m := schema.NewModel()
	m.AddTable("orders")
	m.AddColumn("orders", "order_id", "INT")
	m.AddColumn("orders", "customer_id", "INT")
	m.AddColumn("orders", "amount", "DOUBLE")
	m.AddTable("customers")
	m.AddColumn("customers", "id", "INT")
	m.AddColumn("customers", "name", "STRING")
	return m
}

func TestBuild_SectionOrder(t *testing.T) {
	model := buildModel(t)
	hints := []schema.Hint{{Text: "orders.customer_id might reference customers.id", Confidence: 1.0}}
	example := &qdrant.RetrievedExample{
		Question:   "how many orders are there",
		SQL:        "SELECT COUNT(*) FROM orders;",
		Confidence: 0.87,
	}

	got := Build("total amount per customer", model, hints, example)

	sections := []string{
		"You are a SQL generator",
		"=== RELEVANT EXAMPLE FROM QDRANT ===",
		"=== TABLE STRUCTURES ===",
		"AVAILABLE TABLES AND COLUMNS:",
		"TABLE RELATIONSHIPS:",
		"QUERY HINTS:",
		"Question: total amount per customer",
		"SQL QUERY:",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(got, section)
		if idx < 0 {
			t.Fatalf("prompt missing section %q:\n%s", section, got)
		}
		if idx < last {
			t.Fatalf("section %q out of order:\n%s", section, got)
		}
		last = idx
	}

	assert.True(t, strings.HasSuffix(got, "SQL QUERY:"))
}

func TestBuild_ExampleVerbatim(t *testing.T) {
	example := &qdrant.RetrievedExample{
		Question:   "list customer names",
		SQL:        "SELECT name FROM customers;",
		Confidence: 0.7312,
	}

	got := Build("q", buildModel(t), nil, example)
	assert.Contains(t, got, "-- Similar Question: list customer names")
	assert.Contains(t, got, "-- Suggested SQL: SELECT name FROM customers;")
	assert.Contains(t, got, "-- Similarity Score: 0.73")
}

func TestBuild_NoExampleOmitsSection(t *testing.T) {
	got := Build("q", buildModel(t), nil, nil)
	assert.NotContains(t, got, "RELEVANT EXAMPLE")
	assert.NotContains(t, got, "Similarity Score")
}

func TestBuild_IdentifiersEchoedExactly(t *testing.T) {
	m := schema.NewModel()
	m.AddTable("CamelTable")
	m.AddColumn("CamelTable", "WeIrD_Col", "STRING")

	got := Build("q", m, nil, nil)
	assert.Contains(t, got, "CamelTable")
	assert.Contains(t, got, "WeIrD_Col")
	assert.NotContains(t, got, "cameltable")
}

func TestBuild_GuidanceKeyedOnQuestion(t *testing.T) {
	model := buildModel(t)

	agg := Build("how many orders were placed", model, nil, nil)
	assert.Contains(t, agg, "aggregate")

	dated := Build("orders since last month", model, nil, nil)
	assert.Contains(t, dated, "date")

	complexQ := Build("compare revenue across regions", model, nil, nil)
	assert.Contains(t, complexQ, "JOIN")

	plain := Build("widget colors", model, nil, nil)
	assert.NotContains(t, plain, "QUERY HINTS:")
}

func TestBuild_MatchingColumnCallout(t *testing.T) {
	got := Build("what is the total amount owed", buildModel(t), nil, nil)
	assert.Contains(t, got, "orders.amount")
}

func TestBuild_TableStructuresSection(t *testing.T) {
	got := Build("q", buildModel(t), nil, nil)
	assert.Contains(t, got, "TABLE orders (")
	assert.Contains(t, got, "    order_id INT,")
	assert.Contains(t, got, "TABLE customers (")

	// The DDL block precedes the column listing.
	ddlIdx := strings.Index(got, "=== TABLE STRUCTURES ===")
	listIdx := strings.Index(got, "AVAILABLE TABLES AND COLUMNS:")
	assert.True(t, ddlIdx >= 0 && ddlIdx < listIdx)
}

func TestBuild_EmptySchemaOmitsListing(t *testing.T) {
	got := Build("q", schema.NewModel(), nil, nil)
	assert.NotContains(t, got, "=== TABLE STRUCTURES ===")
	assert.NotContains(t, got, "AVAILABLE TABLES AND COLUMNS:")
	assert.Contains(t, got, "Question: q")
}
