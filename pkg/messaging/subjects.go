package messaging

const OrdersCreatedSubject = "orders.created"
