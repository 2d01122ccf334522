package bus

// std is the process-wide bus used when no other is injected.
var std = New()

func Default() Bus {
	return std
}

func Subscribe(topic EventTopic, fn interface{}) error {
	return std.Subscribe(topic, fn)
}

func Unsubscribe(topic EventTopic, fn interface{}) error {
	return std.Unsubscribe(topic, fn)
}
