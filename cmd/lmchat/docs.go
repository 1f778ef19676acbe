package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/lmchat/docs.go`.
//
// @title           lmchat API
// @version         1.0
// @description     HTTP API for a local on-device chat session: model download, session lifecycle and streamed replies.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
