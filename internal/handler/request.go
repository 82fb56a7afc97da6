package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/exammine/exammine/internal/model"
)

// maxFieldBodyBytes はテキスト入力のみのリクエストボディの上限。
const maxFieldBodyBytes = 1 << 20

// readFields はJSON、URLエンコード、multipartのいずれかのボディから文字列フィールドを取り出す。
// 数値などの文字列以外の値は文字列化する。
func readFields(w http.ResponseWriter, r *http.Request, names ...string) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFieldBodyBytes)
	fields := make(map[string]string, len(names))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, model.NewValidationError("Invalid request body")
		}
		for _, name := range names {
			switch v := body[name].(type) {
			case nil:
			case string:
				fields[name] = v
			default:
				fields[name] = fmt.Sprint(v)
			}
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFieldBodyBytes); err != nil {
			return nil, bodyError(err)
		}
		defer r.MultipartForm.RemoveAll()
		for _, name := range names {
			fields[name] = r.PostFormValue(name)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		for _, name := range names {
			fields[name] = r.PostFormValue(name)
		}
	}
	return fields, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return model.NewFileTooLargeError(maxErr.Limit)
	}
	return model.NewValidationError("Invalid request body")
}
