// Package profiling mounts the Go runtime profiler on a gin router.
package profiling

import (
	"net/http/pprof"

	"github.com/gin-gonic/gin"
)

// Prefix is where the profiler endpoints are mounted.
const Prefix = "/debug/pprof"

var namedProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// Register adds the standard pprof endpoints under Prefix. Capture a CPU
// profile with:
//
//	curl http://localhost:8095/debug/pprof/profile?seconds=30 -o cpu.pprof
func Register(router gin.IRouter) {
	g := router.Group(Prefix)
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.POST("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	for _, name := range namedProfiles {
		g.GET("/"+name, gin.WrapH(pprof.Handler(name)))
	}
}
