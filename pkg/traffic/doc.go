// Package traffic filters proxy capture logs down to the API traffic worth
// reading.
//
// A capture log is a sequence of request and response blocks joined by a
// line of '=' characters (see defaults.Separator). Filtering runs five stages
// strictly in order:
//
//	Split      raw log  -> entries
//	Classify   entry    -> Request | Response | Unknown
//	Matcher    entries  -> matched request/response pairs
//	Extract    response -> JSON candidates (validated, repaired once)
//	Export     pairs    -> separator-joined text + count
//
// Filter runs the whole pipeline over an in-memory log:
//
//	res, err := traffic.Filter(raw, traffic.Config{
//	    URLKeyword:           "api.example.com",
//	    ContentTypeWhitelist: defaults.ContentTypeWhitelist,
//	    MinJSONLength:        defaults.MinJSONLength,
//	    PreserveContext:      true,
//	})
//	fmt.Println(res.Count, res.Text(defaults.Separator))
//
// Every stage is a pure function of its input and the Config, so independent
// runs may execute concurrently.
package traffic
