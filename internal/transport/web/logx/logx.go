// Package logx provides key=value request logging helpers on top of the
// std logger shared by all handlers.
package logx

import (
	"fmt"
	"log"
	"strings"
)

func Info(l *log.Logger, reqID, op, msg string, kv ...any) {
	l.Printf("lvl=info req_id=%s op=%s msg=%q%s", reqID, op, msg, fields(kv))
}

func Error(l *log.Logger, reqID, op, msg string, err error, kv ...any) {
	l.Printf("lvl=error req_id=%s op=%s msg=%q err=%q%s", reqID, op, msg, fmt.Sprint(err), fields(kv))
}

func fields(kv []any) string {
	if len(kv) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
	}
	if len(kv)%2 != 0 {
		sb.WriteString(fmt.Sprintf(" %v=?", kv[len(kv)-1]))
	}
	return sb.String()
}
