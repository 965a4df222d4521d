package ccip

import "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"

var routerABI = registry.RouterABI
