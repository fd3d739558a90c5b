package redisx

import "fmt"

const ns = "lessongo:v1"

func KeyLessonSummary(lessonID int64) string {
	return fmt.Sprintf("%s:lesson:%d:summary", ns, lessonID)
}

func KeyCatalogList() string {
	return ns + ":catalog:list"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelCatalogChanged() string {
	return ns + ":catalog:changed"
}
