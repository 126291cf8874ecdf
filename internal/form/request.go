package form

import (
	"net/http"
	"net/url"

	"github.com/composehq/composeweb/internal/validation"
)

// Request is the thin slice of an HTTP request the form pipeline consumes.
type Request interface {
	Method() string
	QueryParams() validation.Values
	ParsedBody() validation.Values
}

const maxMultipartMemory = 32 << 20

// httpRequest adapts *http.Request to the Request interface, parsing form
// bodies (urlencoded or multipart) once on construction.
type httpRequest struct {
	method string
	query  validation.Values
	body   validation.Values
}

// FromHTTP wraps an incoming request. Body parse failures yield an empty
// body payload; a request the server cannot parse is simply not a submission.
func FromHTTP(r *http.Request) Request {
	req := &httpRequest{
		method: r.Method,
		query:  urlValuesToValues(r.URL.Query()),
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && err != http.ErrNotMultipart {
			req.body = validation.Values{}
			return req
		}
		req.body = urlValuesToValues(r.PostForm)
		if r.MultipartForm != nil {
			for name, headers := range r.MultipartForm.File {
				if len(headers) == 0 {
					req.body[name] = validation.FileUpload{Status: validation.UploadNoFile}
					continue
				}
				h := headers[0]
				upload := validation.FileUpload{Filename: h.Filename, Size: h.Size}
				if h.Filename == "" && h.Size == 0 {
					upload.Status = validation.UploadNoFile
				}
				req.body[name] = upload
			}
		}
	default:
		req.body = validation.Values{}
	}
	return req
}

func (r *httpRequest) Method() string                  { return r.method }
func (r *httpRequest) QueryParams() validation.Values  { return r.query }
func (r *httpRequest) ParsedBody() validation.Values   { return r.body }

func urlValuesToValues(in url.Values) validation.Values {
	out := make(validation.Values, len(in))
	for name, values := range in {
		switch len(values) {
		case 0:
			out[name] = ""
		case 1:
			out[name] = values[0]
		default:
			multi := make([]any, len(values))
			for i, v := range values {
				multi[i] = v
			}
			out[name] = multi
		}
	}
	return out
}

// TestRequest is a canned Request for handler and pipeline tests.
type TestRequest struct {
	ReqMethod string
	Query     validation.Values
	Body      validation.Values
}

func (t *TestRequest) Method() string { return t.ReqMethod }

func (t *TestRequest) QueryParams() validation.Values {
	if t.Query == nil {
		return validation.Values{}
	}
	return t.Query
}

func (t *TestRequest) ParsedBody() validation.Values {
	if t.Body == nil {
		return validation.Values{}
	}
	return t.Body
}
