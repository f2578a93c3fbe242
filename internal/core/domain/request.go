package domain

// RequestContext describes one inbound ad or track request. The HTTP
// layer fills it from headers: Country from the edge geo header, IP from
// X-Forwarded-For, and DeviceType/OS/Browser derived from the raw
// user-agent by a swappable classifier. Empty attributes are permitted
// and treated permissively by targeting.
type RequestContext struct {
	ZoneID     int64
	UserID     string
	SubID      string
	Country    string
	DeviceType string
	OS         string
	Browser    string
	IP         string
	UserAgent  string
	Referer    string
}
