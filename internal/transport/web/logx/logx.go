// Package logx пишет строки вида "lvl=info req_id=... op=... msg=... k=v".
package logx

import (
	"fmt"
	"log"
	"strings"
)

func Info(l *log.Logger, reqID, op, msg string, kv ...any) {
	l.Print(line("info", reqID, op, msg, nil, kv))
}

func Error(l *log.Logger, reqID, op, msg string, err error, kv ...any) {
	l.Print(line("error", reqID, op, msg, err, kv))
}

func line(lvl, reqID, op, msg string, err error, kv []any) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "lvl=%s req_id=%s op=%s msg=%q", lvl, reqID, op, msg)
	if err != nil {
		fmt.Fprintf(&sb, " err=%q", err.Error())
	}
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&sb, " %v=(missing)", kv[i])
		}
	}
	return sb.String()
}
