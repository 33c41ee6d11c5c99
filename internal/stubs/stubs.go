// Package stubs exposes the baked-in standard-library declarations. The
// tables are emitted by the pre-build stub generator from the bundled stub
// manifest; at runtime they are immutable.
package stubs

import "sort"

// ClassSource returns the stub PHP source declaring the named built-in
// class-like, keyed by short name.
func ClassSource(shortName string) (string, bool) {
	src, ok := classSources[shortName]
	return src, ok
}

// FunctionFile returns the stub file key and source declaring the named
// built-in function. All functions of the file are parsed together.
func FunctionFile(name string) (string, string, bool) {
	key, ok := functionIndex[name]
	if !ok {
		return "", "", false
	}
	return key, functionFiles[key], true
}

// ConstantFile returns the stub file key and source declaring the named
// built-in constant.
func ConstantFile(name string) (string, string, bool) {
	key, ok := constantIndex[name]
	if !ok {
		return "", "", false
	}
	return key, constantFiles[key], true
}

// ClassNames returns every stub class short name, sorted.
func ClassNames() []string {
	out := make([]string, 0, len(classSources))
	for name := range classSources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FunctionNames returns every stub function name, sorted.
func FunctionNames() []string {
	out := make([]string, 0, len(functionIndex))
	for name := range functionIndex {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ConstantNames returns every stub constant name, sorted.
func ConstantNames() []string {
	out := make([]string, 0, len(constantIndex))
	for name := range constantIndex {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ServerKeys maps the well-known $_SERVER keys to their descriptions, for
// array-key completion on superglobals.
var ServerKeys = map[string]string{
	"DOCUMENT_ROOT":   "The document root directory under which the current script is executing.",
	"HTTP_HOST":       "Contents of the Host: header from the current request.",
	"HTTP_REFERER":    "The address of the page which referred the user agent to the current page.",
	"HTTP_USER_AGENT": "Contents of the User-Agent: header from the current request.",
	"HTTPS":           "Set to a non-empty value if the script was queried through the HTTPS protocol.",
	"PATH_INFO":       "Any client-provided pathname information trailing the actual script filename.",
	"PHP_SELF":        "The filename of the currently executing script, relative to the document root.",
	"QUERY_STRING":    "The query string, if any, via which the page was accessed.",
	"REMOTE_ADDR":     "The IP address from which the user is viewing the current page.",
	"REMOTE_PORT":     "The port being used on the user's machine to communicate with the web server.",
	"REQUEST_METHOD":  "Which request method was used to access the page: GET, HEAD, POST, PUT.",
	"REQUEST_TIME":    "The timestamp of the start of the request.",
	"REQUEST_URI":     "The URI which was given in order to access this page.",
	"SCRIPT_FILENAME": "The absolute pathname of the currently executing script.",
	"SCRIPT_NAME":     "Contains the current script's path.",
	"SERVER_ADDR":     "The IP address of the server under which the current script is executing.",
	"SERVER_NAME":     "The name of the server host under which the current script is executing.",
	"SERVER_PORT":     "The port on the server machine being used by the web server for communication.",
	"SERVER_PROTOCOL": "Name and revision of the information protocol via which the page was requested.",
	"SERVER_SOFTWARE": "Server identification string, given in the headers when responding to requests.",
}
