package api

import (
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// JSONSerializer encodes responses and decodes requests with sonic.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	var (
		data []byte
		err  error
	)
	if indent != "" {
		data, err = sonic.ConfigStd.MarshalIndent(i, "", indent)
	} else {
		data, err = sonic.Marshal(i)
	}
	if err != nil {
		return err
	}
	_, err = c.Response().Write(data)
	return err
}

func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("decode request body: %v", err))
	}
	return nil
}
