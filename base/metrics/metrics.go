/*Package metrics wraps datadog-go to facilitate metric recording.
Naming convention:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"github.com/spf13/viper"

	"github.com/basewatch/goapi/base/env"
)

// TagValueNA is used for tags whose values are not available.
const TagValueNA = "n/a"

// Ender provides the interface returned by BumpTime
type Ender interface {
	End()
}

// Service provides the interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

// New creates a metrics client with the package name as key prefix.
func New(pkgName string) Service {
	ddTags := []string{
		// using host removes all tags associated with host
		// ref: https://docs.datadoghq.com/developers/dogstatsd/data_types/#host-tag-key
		"host:",
		"pod:" + env.PodName(),
		"env:" + viper.GetString("env_name"),
		"app:" + viper.GetString("app_name"),
	}
	return &Metrics{
		pkgName: pkgName,
		datadog: DDMetrics{ddTags: ddTags},
	}
}

// Metrics forwards bumps to the datadog statsd clients.
type Metrics struct {
	pkgName string
	datadog DDMetrics
}

const sampleRate = 1.0

// BumpAvg bumps the average for the given key.
func (mt *Metrics) BumpAvg(key string, val float64, tags ...string) {
	mt.datadog.BumpAvg(mt.pkgName+`.`+key, val, sampleRate, tags...)
}

// BumpSum bumps the sum for the given key.
func (mt *Metrics) BumpSum(key string, val float64, tags ...string) {
	mt.datadog.BumpSum(mt.pkgName+`.`+key, val, sampleRate, tags...)
}

// BumpHistogram bumps the histogram for the given key.
func (mt *Metrics) BumpHistogram(key string, val float64, tags ...string) {
	mt.datadog.BumpHistogram(mt.pkgName+`.`+key, val, sampleRate, tags...)
}

// BumpTime starts a timer for the given key. Calling End() on the returned
// value records the elapsed time:
//
//	defer met.BumpTime("my.function.time").End()
func (mt *Metrics) BumpTime(key string, tags ...string) Ender {
	return mt.datadog.BumpTime(mt.pkgName+`.`+key, sampleRate, tags...)
}

