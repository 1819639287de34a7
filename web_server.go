package main

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"github.com/sirupsen/logrus"
)

// newWebApp wires the HTTP API. The /api party requires the API key as the
// Basic auth password when one is configured.
func newWebApp(gateway *Gateway) *iris.Application {
	app := iris.New()
	app.Logger().SetLevel("disable")
	app.Use(requestID)

	app.Get("/health", webHealthCheck)

	api := app.Party("/api")
	if gateway.Config.APIKey != "" {
		api.Use(gateway.basicAuthMiddleware)
	}
	api.Get("/codepages", gateway.webCodePages)
	api.Get("/fields", gateway.webFields)
	api.Post("/encode", gateway.webEncode)
	api.Post("/decode", gateway.webDecode)
	api.Post("/split", gateway.webSplit)

	return app
}

// requestID tags every request so web log lines can be correlated.
func requestID(ctx iris.Context) {
	id := ctx.GetHeader("X-Request-Id")
	if id == "" {
		id = uuid.New().String()
	}
	ctx.Values().Set("request_id", id)
	ctx.Header("X-Request-Id", id)
	ctx.Next()
}

func (gateway *Gateway) basicAuthMiddleware(ctx iris.Context) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		unauthorized(ctx, "Authorization header missing")
		return
	}

	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		unauthorized(ctx, "Invalid Authorization header format")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
	if err != nil {
		unauthorized(ctx, "Failed to decode credentials")
		return
	}

	// username:password, the API key is the password
	_, apiKey, ok := strings.Cut(string(decoded), ":")
	if !ok {
		unauthorized(ctx, "Invalid credentials format")
		return
	}
	if apiKey != gateway.Config.APIKey {
		unauthorized(ctx, "Invalid API key")
		return
	}

	ctx.Next()
}

func unauthorized(ctx iris.Context, message string) {
	logf := LoggingFormat{
		Type:    LogType.Web,
		Level:   logrus.WarnLevel,
		Message: message,
	}
	logf.AddField("client_ip", ctx.RemoteAddr())
	logf.AddField("request_id", ctx.Values().GetString("request_id"))
	logf.Print()

	ctx.Header("WWW-Authenticate", `Basic realm="Restricted"`)
	ctx.StatusCode(http.StatusUnauthorized)
	ctx.WriteString("Unauthorized")
}

// badRequest logs a rejected conversion and answers with a JSON error.
func badRequest(ctx iris.Context, op string, err error) {
	logf := LoggingFormat{
		Type:    LogType.Web,
		Level:   logrus.WarnLevel,
		Message: "Rejected " + op + " request",
		Error:   err,
	}
	logf.AddField("client_ip", ctx.RemoteAddr())
	logf.AddField("request_id", ctx.Values().GetString("request_id"))
	logf.Print()

	ctx.StatusCode(http.StatusBadRequest)
	ctx.JSON(iris.Map{"error": err.Error()})
}

func (gateway *Gateway) webEncode(ctx iris.Context) {
	var req EncodeRequest
	if err := ctx.ReadJSON(&req); err != nil {
		badRequest(ctx, TextJobOp.Encode, err)
		return
	}

	resp, err := gateway.EncodeText(req)
	if err != nil {
		badRequest(ctx, TextJobOp.Encode, err)
		return
	}

	if resp.Truncated || resp.Unmapped > 0 {
		logf := LoggingFormat{
			Type:    LogType.Codec,
			Level:   logrus.DebugLevel,
			Message: "Lossy encode",
		}
		logf.AddField("request_id", ctx.Values().GetString("request_id"))
		logf.AddField("size", resp.Size)
		logf.AddField("truncated", resp.Truncated)
		logf.AddField("unmapped", resp.Unmapped)
		logf.Print()
	}

	ctx.StatusCode(http.StatusOK)
	ctx.JSON(resp)
}

func (gateway *Gateway) webDecode(ctx iris.Context) {
	var req DecodeRequest
	if err := ctx.ReadJSON(&req); err != nil {
		badRequest(ctx, TextJobOp.Decode, err)
		return
	}

	resp, err := gateway.DecodeText(req)
	if err != nil {
		badRequest(ctx, TextJobOp.Decode, err)
		return
	}

	ctx.StatusCode(http.StatusOK)
	ctx.JSON(resp)
}

func (gateway *Gateway) webSplit(ctx iris.Context) {
	var req SplitRequest
	if err := ctx.ReadJSON(&req); err != nil {
		badRequest(ctx, TextJobOp.Split, err)
		return
	}

	resp, err := gateway.SplitText(req)
	if err != nil {
		badRequest(ctx, TextJobOp.Split, err)
		return
	}

	ctx.StatusCode(http.StatusOK)
	ctx.JSON(resp)
}

func (gateway *Gateway) webCodePages(ctx iris.Context) {
	ctx.StatusCode(http.StatusOK)
	ctx.JSON(gateway.CodePages())
}

func (gateway *Gateway) webFields(ctx iris.Context) {
	ctx.StatusCode(http.StatusOK)
	ctx.JSON(gateway.Fields())
}

func webHealthCheck(ctx iris.Context) {
	ctx.StatusCode(http.StatusOK)
	ctx.WriteString("OK")
}
