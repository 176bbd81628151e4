package relay

// Transport 是协调器回调传输层投递消息的边界接口。
// 投递是 fire-and-forget：不在线的接收者直接收不到，没有排队重试。
type Transport interface {
	// Unicast 投递给单个连接。
	Unicast(connID string, data []byte)
	// Broadcast 无条件投递给集合内的每个连接。
	Broadcast(connIDs []string, data []byte)
	// BroadcastExcept 投递给集合内除 exceptID 以外的每个连接。
	BroadcastExcept(connIDs []string, exceptID string, data []byte)
	// Close 关闭指定连接的底层链路，对不存在的连接是空操作。
	Close(connID string)
}
