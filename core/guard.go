package core

import (
	"reflect"
	"time"
)

// isFunction reports whether x is a non-nil function value. A typed nil
// func stored in an interface is not callable and is rejected too.
func isFunction(x any) bool {
	if x == nil {
		return false
	}
	v := reflect.ValueOf(x)
	return v.Kind() == reflect.Func && !v.IsNil()
}

func checkReceiver(receive Receiver, name string) error {
	if !isFunction(receive) {
		return newReason(name, "Not a receiver function", nil)
	}
	return nil
}

func checkRequestors(requestors []Requestor, name string) error {
	for i, r := range requestors {
		if !isFunction(r) {
			return newReason(name, "Bad requestors array", i)
		}
	}
	return nil
}

func checkThrottle(throttle int, name string) error {
	if throttle < 0 {
		return newReason(name, "Bad throttle", throttle)
	}
	return nil
}

func checkTimeLimit(limit time.Duration, name string) error {
	if limit < 0 {
		return newReason(name, "Bad time limit", limit)
	}
	return nil
}
