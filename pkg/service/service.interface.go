// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package service

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Runnable is the common interface for all long-running services.
type Runnable interface {
	Run(ctx context.Context)
}

// Start launches each service in its own goroutine. A panic in any
// service cancels the shared context so the others shut down, and the
// eventual exit code becomes non-zero. The returned channel delivers
// the process exit code once every service has stopped.
func Start(ctx context.Context, ctxCancel context.CancelFunc, log zerolog.Logger, services []Runnable) <-chan int {
	wg := &sync.WaitGroup{}

	var exitCode int
	var exitCh = make(chan int, 1)

	for _, s := range services {
		service := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error().Any("panic", r).Bytes("stack", debug.Stack()).Msg("service panic")
					exitCode = -1
					ctxCancel()
				}
			}()
			service.Run(ctx)
		}()
	}

	go func() {
		// wait for all services to stop
		wg.Wait()
		exitCh <- exitCode
	}()

	return exitCh
}
