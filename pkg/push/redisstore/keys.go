package redisstore

// keys builds every key the store writes. All keys share one prefix so a
// deployment can share a Redis database with other services.
//
//	<prefix>:devices:<user>      hash  token -> device JSON
//	<prefix>:pref:<user>         string preference JSON
//	<prefix>:prefs:enabled       set   users with notifications enabled
//	<prefix>:logs:<user>         hash  log id -> entry JSON
//	<prefix>:logs:<user>:sent    zset  log id scored by sent time (ms)
//	<prefix>:logs:<user>:unread  set   unread log ids
type keys struct {
	prefix string
}

func (k keys) devices(userID string) string { return k.prefix + ":devices:" + userID }
func (k keys) pref(userID string) string    { return k.prefix + ":pref:" + userID }
func (k keys) enabledPrefs() string         { return k.prefix + ":prefs:enabled" }
func (k keys) logs(userID string) string    { return k.prefix + ":logs:" + userID }
func (k keys) logsBySent(userID string) string {
	return k.logs(userID) + ":sent"
}
func (k keys) unread(userID string) string { return k.logs(userID) + ":unread" }
