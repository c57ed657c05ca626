package prerender

// crawlerUserAgents are lower-case substrings matched against the request
// User-Agent. Order is preserved for readability only.
var crawlerUserAgents = []string{
	"baiduspider",
	"facebookexternalhit",
	"twitterbot",
	"rogerbot",
	"linkedinbot",
	"embedly",
	"quora link preview",
	"showyoubot",
	"outbrain",
	"pinterest",
	"developers.google.com/+/web/snippet",
}

// extensionsToIgnore are matched anywhere in the request URL, not only as a suffix.
var extensionsToIgnore = []string{
	".js",
	".css",
	".xml",
	".less",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".pdf",
	".doc",
	".txt",
	".ico",
	".rss",
	".zip",
	".mp3",
	".rar",
	".exe",
	".wmv",
	".avi",
	".ppt",
	".mpg",
	".mpeg",
	".tif",
	".wav",
	".mov",
	".psd",
	".ai",
	".xls",
	".mp4",
	".m4a",
	".swf",
	".dat",
	".dmg",
	".iso",
	".flv",
	".m4v",
	".torrent",
}

// CrawlerUserAgents returns a copy of the crawler signature table.
func CrawlerUserAgents() []string {
	return append([]string(nil), crawlerUserAgents...)
}

// IgnoredExtensions returns a copy of the ignored extension table.
func IgnoredExtensions() []string {
	return append([]string(nil), extensionsToIgnore...)
}
