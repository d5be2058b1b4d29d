package main

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/koscakluka/ema-interview/cmd/ema-interview"

var logger = otelslog.NewLogger(scopeName)
