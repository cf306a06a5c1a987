package ioc

import (
	"github.com/ego-component/eetcd"
	"github.com/gotomicro/ego/core/econf"
	"github.com/gotomicro/ego/core/elog"
)

// InitEtcdClient 只用于各实例之间同步通道暂停状态
func InitEtcdClient() *eetcd.Component {
	if econf.GetString("lanes.etcdPrefix") == "" {
		elog.DefaultLogger.Warn("未配置 lanes.etcdPrefix，使用默认前缀")
	}
	return eetcd.Load("etcd").Build()
}
