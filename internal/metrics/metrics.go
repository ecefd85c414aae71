// Package metrics 进程内计数器（expvar），由状态接口在 /debug/vars 暴露
package metrics

import "expvar"

var (
	OrdersSubmitted = expvar.NewInt("orders_submitted")
	OrdersFilled    = expvar.NewInt("orders_filled")
	OrdersRejected  = expvar.NewInt("orders_rejected")
	OrdersCanceled  = expvar.NewInt("orders_canceled")
	OrdersUnknown   = expvar.NewInt("orders_unknown")

	ReconcileRuns   = expvar.NewInt("reconcile_runs")
	ReconcileErrors = expvar.NewInt("reconcile_errors")

	StreamResyncs = expvar.NewInt("stream_resyncs")
	SnapshotSaves = expvar.NewInt("ledger_snapshot_saves")
	SnapshotLoads = expvar.NewInt("ledger_snapshot_loads")
	OverCapFills  = expvar.NewInt("ledger_over_cap_fills")
)
