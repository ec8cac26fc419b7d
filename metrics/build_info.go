package metrics

import (
	"cmp"
	"runtime"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo 导出常量 1 的 lsm_build_info，标签携带服务名、版本、Go 版本与 VCS 修订号.
// 重复调用无效果.
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lsm_build_info",
		Help: "Constant 1, labelled with the running pricer build.",
	}, []string{"service", "version", "go_version", "revision"})

	m.BuildInfo.WithLabelValues(
		cmp.Or(serviceName, "unknown"),
		cmp.Or(version, "unknown"),
		runtime.Version(),
		vcsRevision(),
	).Set(1)
}

func vcsRevision() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
