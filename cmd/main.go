package main

import (
	"github.com/mbrth/iasante/config"
	"github.com/mbrth/iasante/routes"
	"github.com/mbrth/iasante/utils"
)

func main() {
	config.InitDB()
	utils.InitS3()
	r := routes.SetupRouter()
	r.Run(":8080")
}
