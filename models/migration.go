package models

import (
	"bitbucket.org/mmdatafocus/invoicing_backend/config"
)

func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&InvoiceDraft{},
		&InvoiceDraftItem{},
	)
	if err != nil {
		config.GetLogger().Panic(err.Error())
	}
}
