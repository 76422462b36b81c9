package constant

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// KV key prefixes. Catalog entries are immutable; result entries carry TTL.
	KVPrefixCatalog   = "catalog"
	KVPrefixPrecalc   = "precalc"
	KVPrefixDelivered = "delivered"
)
