// Command seed-examples fingerprints a starter corpus of question/SQL pairs
// and upserts it into the similarity index collection. Run it once against a
// fresh Qdrant instance before serving traffic; retrieval degrades gracefully
// without it, but prompts carry no examples.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge-engine/pkg/config"
	"github.com/queryforge/queryforge-engine/pkg/fingerprint"
	"github.com/queryforge/queryforge-engine/pkg/qdrant"
)

type seedExample struct {
	question string
	sql      string
}

// seedCorpus covers the query shapes the prompt guidance knows about:
// counts, aggregates with grouping, date windows, and joins.
var seedCorpus = []seedExample{
	{
		question: "How many customers are there?",
		sql:      "SELECT COUNT(*) FROM customers;",
	},
	{
		question: "How many orders were placed last month?",
		sql:      "SELECT COUNT(*) FROM orders WHERE order_date >= date_trunc('month', current_date - interval '1 month') AND order_date < date_trunc('month', current_date);",
	},
	{
		question: "What is the total revenue per product category?",
		sql:      "SELECT category, SUM(amount) AS total_revenue FROM sales GROUP BY category;",
	},
	{
		question: "List the names of all employees in the sales department",
		sql:      "SELECT name FROM employees WHERE department = 'sales';",
	},
	{
		question: "What is the average salary by department?",
		sql:      "SELECT department, AVG(salary) AS avg_salary FROM employees GROUP BY department;",
	},
	{
		question: "Which customers placed the most orders?",
		sql:      "SELECT c.name, COUNT(o.order_id) AS order_count FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.name ORDER BY order_count DESC LIMIT 10;",
	},
	{
		question: "Show the top 5 products by total sales amount",
		sql:      "SELECT product_name, SUM(amount) AS total FROM sales GROUP BY product_name ORDER BY total DESC LIMIT 5;",
	},
	{
		question: "How much did each customer spend in total?",
		sql:      "SELECT c.name, SUM(o.amount) AS total_spent FROM customers c JOIN orders o ON o.customer_id = c.id GROUP BY c.name;",
	},
	{
		question: "What is the most recent order date?",
		sql:      "SELECT MAX(order_date) FROM orders;",
	},
	{
		question: "Count distinct cities our customers live in",
		sql:      "SELECT COUNT(DISTINCT city) FROM customers;",
	},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath, "seed")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := qdrant.NewClient(&qdrant.Config{
		URL:        cfg.Qdrant.URL,
		Collection: cfg.Qdrant.Collection,
		Timeout:    30 * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create qdrant client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := client.EnsureCollection(ctx, fingerprint.Dimension); err != nil {
		logger.Fatal("failed to ensure collection", zap.Error(err))
	}

	points := make([]qdrant.Point, 0, len(seedCorpus))
	for _, ex := range seedCorpus {
		points = append(points, qdrant.Point{
			ID:     uuid.NewString(),
			Vector: fingerprint.Embed(ex.question),
			Payload: map[string]string{
				"question": ex.question,
				"sql":      ex.sql,
			},
		})
	}

	if err := client.UpsertPoints(ctx, points); err != nil {
		logger.Fatal("failed to upsert points", zap.Error(err))
	}

	logger.Info("seeded similarity index",
		zap.String("collection", cfg.Qdrant.Collection),
		zap.Int("examples", len(points)))
}
