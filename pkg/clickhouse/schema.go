package clickhouse

import "fmt"

// BarsTable is the daily close archive.
const BarsTable = "daily_bars"

// BarSchema returns the DDL for the bar archive in database. ReplacingMergeTree
// keeps the newest version of a (symbol, day) row so re-delivered closes overwrite.
func BarSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	day Date,
	symbol LowCardinality(String),
	close Float64,
	ingested_at DateTime64(3) DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (symbol, day)`, database, BarsTable),
	}
}
