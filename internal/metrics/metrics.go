package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardshop_orders_created_total",
		Help: "Orders that reserved their cards",
	})

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardshop_order_transitions_total",
			Help: "Committed order status transitions by target status",
		},
		[]string{"to"},
	)

	PaymentNotify = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardshop_payment_notify_total",
			Help: "Payment notifications by outcome",
		},
		[]string{"result"},
	)

	SweeperClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cardshop_sweeper_closed_total",
		Help: "Expired orders closed by the sweeper",
	})

	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardshop_notifications_failed_total",
			Help: "Background notifications that failed",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrderTransitions, PaymentNotify, SweeperClosed, NotificationsFailed)
}
