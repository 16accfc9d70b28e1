package scheduler

// Package scheduler keeps the scan caches warm so user requests rarely
// pay for a cold rebuild. It handles:
// - Periodic daily-pattern rescans during market hours
// - Intraday strength polling and websocket broadcasting
// - Prefetching the exchange's institutional tables after publication
//
// The jobs are implemented in jobs.go
