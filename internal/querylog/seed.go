package querylog

// SampleLogs returns a small, varied data set for local development. It
// includes fast indexed lookups and slow full scans so the predictor has
// something to separate.
func SampleLogs() []QueryLog {
	return []QueryLog{
		{QueryText: "SELECT * FROM users WHERE id = 42", ExecutionTime: 0.004, RecordsProcessed: 1, IndexesUsed: "users_pkey", ColumnsAccessed: "id"},
		{QueryText: "SELECT id, email FROM users WHERE email = 'a@example.com'", ExecutionTime: 0.012, RecordsProcessed: 1, IndexesUsed: "users_email_idx", ColumnsAccessed: "id,email"},
		{QueryText: "SELECT * FROM orders WHERE user_id = 42 ORDER BY created_at DESC", ExecutionTime: 0.35, RecordsProcessed: 120, IndexesUsed: "orders_user_id_idx", ColumnsAccessed: "user_id,created_at"},
		{QueryText: "SELECT * FROM orders WHERE status = 'pending'", ExecutionTime: 2.8, RecordsProcessed: 250000, IndexesUsed: "", ColumnsAccessed: "status"},
		{QueryText: "SELECT SUM(amount) FROM payments WHERE created_at >= '2024-01-01'", ExecutionTime: 4.1, RecordsProcessed: 900000, IndexesUsed: "none", ColumnsAccessed: "amount,created_at"},
		{QueryText: "SELECT p.name, COUNT(*) FROM products p JOIN order_items oi ON oi.product_id = p.id GROUP BY p.name", ExecutionTime: 1.6, RecordsProcessed: 180000, IndexesUsed: "order_items_product_id_idx", ColumnsAccessed: "name,product_id,id"},
		{QueryText: "SELECT * FROM sessions WHERE token = 'abc'", ExecutionTime: 0.002, RecordsProcessed: 1, IndexesUsed: "sessions_token_key", ColumnsAccessed: "token"},
		{QueryText: "SELECT * FROM audit_log WHERE message LIKE '%timeout%'", ExecutionTime: 6.3, RecordsProcessed: 1500000, IndexesUsed: "", ColumnsAccessed: "message"},
	}
}
