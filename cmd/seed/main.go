// Command seed crea una caja y un cliente con línea de crédito para pruebas locales.
// Uso: go run ./cmd/seed -tenant <uuid>
package main

import (
	"flag"
	"fmt"
	"os"

	"ferrepos/internal/config"
	"ferrepos/internal/infra"
	"ferrepos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	tenant := flag.String("tenant", "", "tenant id (default: new uuid)")
	limite := flag.String("limite", "1500.00", "límite de crédito del cliente demo")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	tenantID := uuid.New()
	if *tenant != "" {
		if tenantID, err = uuid.Parse(*tenant); err != nil {
			log.Fatal().Err(err).Msg("tenant inválido")
		}
	}
	limiteCredito, err := decimal.NewFromString(*limite)
	if err != nil {
		log.Fatal().Err(err).Msg("límite inválido")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	caja := model.Caja{ID: uuid.New(), TenantID: tenantID, Nombre: "Caja 1", Activa: true}
	cliente := model.Cliente{
		TenantID:        tenantID,
		Nombre:          "Constructora Demo SAC",
		NumeroDocumento: "20100070970",
		LimiteCredito:   limiteCredito,
		DiasCredito:     30,
	}
	if err := db.Create(&caja).Error; err != nil {
		log.Fatal().Err(err).Msg("crear caja")
	}
	if err := db.Create(&cliente).Error; err != nil {
		log.Fatal().Err(err).Msg("crear cliente")
	}

	fmt.Printf("tenant_id  %s\ncaja_id    %s\ncliente_id %s\n", tenantID, caja.ID, cliente.ID)
}
