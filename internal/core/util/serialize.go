package util

import "encoding/json"

func Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}
