package main

import (
	"os"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/app"
)

func main() {
	os.Exit(app.NewRunner().Run(os.Args[1:]))
}
