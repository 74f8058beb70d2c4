package constants

const AppVersion = "1.0.0"

// RedisKeyQueue prefixes every queue list; the queue appends its name and
// the processing and dead-letter suffixes.
const RedisKeyQueue = "ahlanjobs:queue:"

const TimeFormatDateOnly = "2006-01-02"
