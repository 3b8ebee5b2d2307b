package log

const (
	KeyAppName       = "app"
	KeyRequestID     = "requestId"
	KeyProcess       = "process"
	KeyTag           = "tag"
	KeyConfig        = "config"
	KeyRequestBody   = "requestBody"
	KeyRequestHeader = "requestHeader"
	KeyRequestHost   = "host"
	KeyRequestIp     = "requesterIP"
	KeyRequestMethod = "requestMethod"
	KeyRequestURI    = "requestURI"
	KeyRequestURL    = "requestURL"
	KeyCacheKey      = "cacheKey"
	KeyCartID        = "cartId"
	KeyProductID     = "productId"
	KeyBarcode       = "barcode"
	KeyCategory      = "category"
	KeySearch        = "search"
	KeyQuantity      = "quantity"
	KeyClamped       = "clamped"
	KeyLineCount     = "lineCount"
	KeyReceiptID     = "receiptId"
	KeyTotal         = "total"
	KeyViolations    = "violations"
)
