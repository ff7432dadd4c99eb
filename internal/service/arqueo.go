package service

import (
	"time"

	"ferrepos/internal/model"

	"github.com/shopspring/decimal"
)

// ResultadoCierre is the reconciliation of a blind count against the ledger.
type ResultadoCierre struct {
	Apertura      decimal.Decimal
	TotalIngresos decimal.Decimal
	TotalEgresos  decimal.Decimal
	Teorico       decimal.Decimal
	Contado       decimal.Decimal
	Descuadre     decimal.Decimal
	Clasificacion string
}

// Conciliar computes the theoretical balance from the movements created up to
// hasta, and classifies the counted amount against it.
// teorico = apertura + Σ INGRESO − Σ EGRESO; descuadre = contado − teorico.
func Conciliar(apertura decimal.Decimal, movs []model.MovimientoCaja, contado decimal.Decimal, hasta time.Time) ResultadoCierre {
	ingresos, egresos := totales(movs, hasta)
	teorico := apertura.Add(ingresos).Sub(egresos)
	descuadre := contado.Sub(teorico)
	return ResultadoCierre{
		Apertura:      apertura,
		TotalIngresos: ingresos,
		TotalEgresos:  egresos,
		Teorico:       teorico,
		Contado:       contado,
		Descuadre:     descuadre,
		Clasificacion: ClasificarDescuadre(descuadre),
	}
}

// ClasificarDescuadre: 0 → CUADRADO, < 0 → FALTANTE, > 0 → SOBRANTE.
func ClasificarDescuadre(d decimal.Decimal) string {
	switch d.Sign() {
	case 0:
		return model.Cuadrado
	case -1:
		return model.Faltante
	default:
		return model.Sobrante
	}
}

func saldoTeorico(apertura decimal.Decimal, movs []model.MovimientoCaja, hasta time.Time) decimal.Decimal {
	saldo := apertura
	for _, m := range movs {
		if !hasta.IsZero() && m.CreatedAt.After(hasta) {
			continue
		}
		saldo = saldo.Add(m.Firmado())
	}
	return saldo
}

func totales(movs []model.MovimientoCaja, hasta time.Time) (ingresos, egresos decimal.Decimal) {
	ingresos, egresos = decimal.Zero, decimal.Zero
	for _, m := range movs {
		if !hasta.IsZero() && m.CreatedAt.After(hasta) {
			continue
		}
		switch m.Tipo {
		case model.Ingreso:
			ingresos = ingresos.Add(m.Monto)
		case model.Egreso:
			egresos = egresos.Add(m.Monto)
		}
	}
	return ingresos, egresos
}
