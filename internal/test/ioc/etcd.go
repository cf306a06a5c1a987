package ioc

import (
	"os"

	"github.com/ego-component/eetcd"
	"github.com/gotomicro/ego/core/econf"
)

// InitEtcdClient 地址可以通过 ETCD_ADDR 覆盖，默认连本地 etcd
func InitEtcdClient() *eetcd.Component {
	addr := os.Getenv("ETCD_ADDR")
	if addr == "" {
		addr = "127.0.0.1:2379"
	}
	econf.Set("etcd", map[string]any{
		"addrs":          []string{addr},
		"secure":         false,
		"connectTimeout": "1s",
	})
	return eetcd.Load("etcd").Build()
}
