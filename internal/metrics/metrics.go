package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_creates_total",
		Help: "Total rooms created successfully",
	})

	RoomsJoined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "room_joins_total",
		Help: "Total successful room joins",
	})

	CreateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_create_rejections_total",
		Help: "Create attempts rejected, by reason",
	}, []string{"reason"})

	JoinRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_join_rejections_total",
		Help: "Join attempts rejected, by reason",
	}, []string{"reason"})

	MemberSetsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "member_sets_reconciled_total",
		Help: "Membership sets fixed by the reconciliation sweep, by action",
	}, []string{"action"})
)
