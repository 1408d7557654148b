package main

import (
	"github.com/architeacher/svc-message-retry/internal/runtime"
)

func main() {
	runtime.NewWorker().Run()
}
