package metrics

import (
	"strconv"
	"time"
)

func unixNow() int64 {
	return time.Now().Unix()
}

func formatGeonameID(id int64) string {
	return strconv.FormatInt(id, 10)
}
