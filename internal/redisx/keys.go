package redisx

import "time"

const (
	// Cache detail product: catalog:product:{product_id} -> JSON product
	KeyProduct = "catalog:product:%s"

	// Generasi cache product, naik setiap invalidate: catalog:product:gen:{product_id}
	KeyProductGen = "catalog:product:gen:%s"

	// Session aktif: session:{sid} -> user_id
	KeySession = "session:%s"

	// Rate limit auth: rl:{route}:ip:{ip} -> counter
	KeyRateLimit = "rl:%s:ip:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Feed aktivitas per user: list activity:{user_id}, terbaru di depan
	KeyActivity = "activity:%s"

	// Statistik per product: hash product:stats:{product_id} {rented, returned}
	KeyProductStats = "product:stats:%s"
)

var (
	TTLDedup    = 48 * time.Hour
	TTLActivity = 30 * 24 * time.Hour

	TTLProductGen = 24 * time.Hour
)
