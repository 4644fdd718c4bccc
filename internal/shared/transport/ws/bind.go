package ws

import (
	"errors"

	"github.com/go-viper/mapstructure/v2"
)

// BindJSON decodes the request fields into dst using its json tags.
func BindJSON(req *WsMsgReq, dst any) error {
	if req == nil || req.Body == nil || req.Body.Fields == nil {
		return errors.New("ws request body is nil")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(req.Body.Fields)
}
