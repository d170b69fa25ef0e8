package event

// Broker topology names. All exchanges and queues are durable and declared
// idempotently at startup.
const (
	ExchangeFolder = "folder.exchange"
	ExchangeFile   = "file.exchange"
	ExchangeCache  = "cache.exchange"
	ExchangeSearch = "search.exchange"

	QueueFolder = "folder.queue"
	QueueFile   = "file.queue"
	QueueCache  = "cache.queue"
	QueueSearch = "search.queue"
)

// Route is the exchange/routing-key pair a message is published to.
type Route struct {
	Exchange   string
	RoutingKey string
}

// RouteFor resolves the route for an event type. Unknown types fall back to
// the folder exchange with the raw type as routing key; this keeps the
// producer side forward-compatible with types the consumers do not yet know.
// The second return is false for that fallback so callers can log it.
func RouteFor(eventType Type) (Route, bool) {
	switch eventType {
	case TypeFolderCreated, TypeFolderUpdated, TypeFolderDeleted, TypeFolderMoved:
		return Route{Exchange: ExchangeFolder, RoutingKey: string(eventType)}, true
	case TypeFileCreated, TypeFileUpdated, TypeFileDeleted:
		return Route{Exchange: ExchangeFile, RoutingKey: string(eventType)}, true
	case TypeCacheInvalidate, TypeCacheWarm, TypeCacheClearAll:
		// Fanout exchange ignores the routing key; keep the type for logs.
		return Route{Exchange: ExchangeCache, RoutingKey: string(eventType)}, true
	case TypeSearchIndexFolder, TypeSearchIndexFile, TypeSearchRemoveFolder, TypeSearchRemoveFile, TypeSearchRebuildIndex:
		return Route{Exchange: ExchangeSearch, RoutingKey: string(eventType)}, true
	default:
		return Route{Exchange: ExchangeFolder, RoutingKey: string(eventType)}, false
	}
}
