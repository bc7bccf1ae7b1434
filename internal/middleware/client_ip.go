package middleware

import (
	"net"
	"net/http"
)

// ClientIP はレート制限とログに使うクライアントキーを返す。
// RemoteAddrのホスト部を使い、得られない場合は"unknown"を返す。
// プロキシヘッダーは参照しない。信頼できるリバースプロキシの背後では
// ルーターがchiのRealIPでRemoteAddrを書き換える。
func ClientIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
