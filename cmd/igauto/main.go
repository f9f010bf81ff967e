// Command igauto runs the Instagram comment and DM automation backend.
//
// @title                       Instagram Automation API
// @version                     1.0
// @description                 Webhook receiver and dashboard API for Instagram comment and DM automations.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  AdminKey
// @in                          header
// @name                        X-Admin-Key
package main

func main() {
	Execute()
}
