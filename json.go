package target

// Key names in the delivery API response payload.
const (
	keyExecute        = "execute"
	keyPrefetch       = "prefetch"
	keyMboxes         = "mboxes"
	keyViews          = "views"
	keyID             = "id"
	keyTntID          = "tntId"
	keyEdgeHost       = "edgeHost"
	keyMessage        = "message"
	keyName           = "name"
	keyOptions        = "options"
	keyMetrics        = "metrics"
	keyAnalytics      = "analytics"
	keyPayload        = "payload"
	keyResponseTokens = "responseTokens"
	keyState          = "state"
	keyType           = "type"
	keyContent        = "content"
	keyEventToken     = "eventToken"
)

// Option content types and metric types used by the delivery API.
const (
	contentTypeHTML = "html"
	contentTypeJSON = "json"
	metricTypeClick = "click"
)

// A4TSessionIDKey is the key under which the Target session id is injected
// into a preprocessed Analytics for Target payload.
const A4TSessionIDKey = "a.target.sessionId"

// cachedMboxAcceptedKeys lists the mbox fields that survive prefetch
// extraction. Everything else is transient and must not reach the on-device
// cache.
var cachedMboxAcceptedKeys = []string{keyName, keyOptions, keyMetrics, keyAnalytics, keyState}
