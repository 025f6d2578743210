/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/go-openapi/strfmt"
)

// Dataset is a consistent set of demo records. Ids are the decimal positions
// starting at 1, and cross references point inside the set.
type Dataset struct {
	Users        []User
	Properties   []Property
	Transactions []Transaction
	Contracts    []Contract
	Messages     []Message
	Partners     []Partner
}

// Dataset sizes.
const (
	SeedUsers        = 40
	SeedProperties   = 25
	SeedTransactions = 50
	SeedContracts    = 20
	SeedMessages     = 150
	SeedPartners     = 10
)

var seedCities = []struct {
	name string
	pos  GeoPoint
}{
	{"Paris", GeoPoint{48.8566, 2.3522}},
	{"Lyon", GeoPoint{45.7640, 4.8357}},
	{"Marseille", GeoPoint{43.2965, 5.3698}},
	{"Toulouse", GeoPoint{43.6047, 1.4442}},
	{"Nice", GeoPoint{43.7102, 7.2620}},
	{"Bordeaux", GeoPoint{44.8378, -0.5792}},
}

func pick[E any](r *rand.Rand, values []E) E {
	return values[r.IntN(len(values))]
}

func januaryDay(r *rand.Rand) string {
	return fmt.Sprintf("2025-01-%02d", r.IntN(27)+1)
}

// Seed builds the demo dataset. The same seed always yields the same records.
func Seed(seed uint64) Dataset {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	d := Dataset{}

	d.Users = []User{
		{ID: "1", Nom: "Dupont", Prenom: "Jean", Email: "jean.dupont@email.com", Type: UserClient, Statut: UserActive, Ville: "Paris",
			PhotoProfil: "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?w=150&h=150&fit=crop"},
		{ID: "2", Nom: "Martin", Prenom: "Marie", Email: "marie.martin@email.com", Type: UserOwner, Statut: UserActive, Ville: "Lyon",
			PhotoProfil: "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg?w=150&h=150&fit=crop"},
		{ID: "3", Nom: "Agence Immobilier Plus", Email: "contact@agenceplus.fr", Type: UserAgency, Statut: UserPending, Ville: "Marseille"},
		{ID: "4", Nom: "Admin Principal", Email: "admin@kinaru.com", Type: UserAgency, Statut: UserActive, Ville: "Paris"},
	}
	for i := len(d.Users) + 1; i <= SeedUsers; i++ {
		d.Users = append(d.Users, User{
			ID:     strconv.Itoa(i),
			Nom:    fmt.Sprintf("Utilisateur %d", i),
			Email:  strfmt.Email(fmt.Sprintf("user%d@email.com", i)),
			Type:   pick(r, []UserType{UserClient, UserOwner, UserAgency}),
			Statut: pick(r, []UserStatus{UserActive, UserBanned, UserPending}),
			Ville:  pick(r, seedCities).name,
		})
	}

	d.Properties = []Property{
		{ID: "1", UserID: "2", Title: "Appartement Centre Paris", Description: "Magnifique appartement 3 pièces au cœur de Paris",
			Usage: UsageResidential, Statut: PropertyFree, ValidationStatus: ValidationAccepted, Prix: 2500, Devise: "EUR",
			Ville: "Paris", Arrondissement: "Paris 1er", Position: &GeoPoint{48.8566, 2.3522}, Surface: 75,
			Images: []string{"https://images.pexels.com/photos/271624/pexels-photo-271624.jpeg?w=300&h=200&fit=crop"}},
		{ID: "2", UserID: "2", Title: "Bureau Lyon Part-Dieu", Description: "Espace de bureau moderne dans quartier d'affaires",
			Usage: UsageCommercial, Statut: PropertyOccupied, ValidationStatus: ValidationAccepted, Prix: 3500, Devise: "EUR",
			Ville: "Lyon", Arrondissement: "Lyon 3ème", Position: &GeoPoint{45.7640, 4.8357}, Surface: 120,
			Images: []string{"https://images.pexels.com/photos/276724/pexels-photo-276724.jpeg?w=300&h=200&fit=crop"}},
	}
	for i := len(d.Properties) + 1; i <= SeedProperties; i++ {
		city := pick(r, seedCities)
		pos := city.pos
		photo := 271624 + i
		d.Properties = append(d.Properties, Property{
			ID:               strconv.Itoa(i),
			UserID:           strconv.Itoa(r.IntN(SeedUsers) + 1),
			Title:            fmt.Sprintf("Propriété %d", i),
			Description:      fmt.Sprintf("Description de la propriété %d", i),
			Usage:            pick(r, []PropertyUsage{UsageResidential, UsageCommercial}),
			Statut:           pick(r, []PropertyStatus{PropertyFree, PropertyOccupied, PropertyReserved}),
			ValidationStatus: pick(r, []ValidationStatus{ValidationAccepted, ValidationRejected, ValidationPending}),
			Prix:             float64(r.IntN(5000) + 500),
			Devise:           "EUR",
			Ville:            city.name,
			Position:         &pos,
			Surface:          float64(r.IntN(200) + 30),
			Images:           []string{fmt.Sprintf("https://images.pexels.com/photos/%d/pexels-photo-%d.jpeg?w=300&h=200&fit=crop", photo, photo)},
		})
	}

	for i := 1; i <= SeedTransactions; i++ {
		d.Transactions = append(d.Transactions, Transaction{
			ID:          strconv.Itoa(i),
			Montant:     float64(r.IntN(5000) + 100),
			Type:        pick(r, []TransactionType{TransactionRent, TransactionBookingFee, TransactionSubscription, TransactionCommission}),
			Date:        januaryDay(r),
			Statut:      pick(r, []TransactionStatus{TransactionPaid, TransactionPending, TransactionCancelled}),
			UserID:      strconv.Itoa(r.IntN(SeedUsers) + 1),
			PropertyID:  strconv.Itoa(r.IntN(SeedProperties) + 1),
			Description: fmt.Sprintf("Transaction %d", i),
		})
	}

	for i := 1; i <= SeedContracts; i++ {
		signature := SignaturePending
		if r.Float64() > 0.5 {
			signature = SignatureSigned
		}
		d.Contracts = append(d.Contracts, Contract{
			ID:              strconv.Itoa(i),
			LocataireID:     strconv.Itoa(r.IntN(SeedUsers) + 1),
			ProprietaireID:  strconv.Itoa(r.IntN(SeedUsers) + 1),
			ProprieteID:     strconv.Itoa(r.IntN(SeedProperties) + 1),
			DateDebut:       januaryDay(r),
			DateFin:         fmt.Sprintf("2025-12-%02d", r.IntN(27)+1),
			MontantPrevu:    float64(r.IntN(3000) + 500),
			Devise:          "EUR",
			Frequence:       "mensuel",
			Statut:          pick(r, []ContractStatus{ContractActive, ContractExpired, ContractTerminated}),
			SignatureStatus: signature,
		})
	}

	for i := 1; i <= SeedMessages; i++ {
		d.Messages = append(d.Messages, Message{
			ID:         strconv.Itoa(i),
			SenderID:   strconv.Itoa(r.IntN(SeedUsers) + 1),
			ReceiverID: strconv.Itoa(r.IntN(SeedUsers) + 1),
			Content:    fmt.Sprintf("Contenu du message %d", i),
			Timestamp:  fmt.Sprintf("%sT%02d:%02d:00", januaryDay(r), r.IntN(24), r.IntN(60)),
			Statut:     pick(r, []MessageStatus{MessageRead, MessageUnread}),
			Type:       pick(r, []MessageType{MessageText, MessageNotification}),
			Flagged:    r.Float64() > 0.8,
		})
	}

	d.Partners = []Partner{
		{ID: "1", Name: "Banque Populaire", Type: PartnerBank, Contact: "+33 1 23 45 67 89", Email: "partenariat@banquepop.fr",
			Services: []string{"Prêts immobiliers", "Garanties locatives"}, ContractEnd: "2025-12-31"},
		{ID: "2", Name: "Assurance Habitat", Type: PartnerInsurance, Contact: "+33 1 23 45 67 90", Email: "pro@assurhabitat.fr",
			Services: []string{"Assurance habitation", "Assurance propriétaire"}, ContractEnd: "2025-11-30"},
	}
	for i := len(d.Partners) + 1; i <= SeedPartners; i++ {
		d.Partners = append(d.Partners, Partner{
			ID:          strconv.Itoa(i),
			Name:        fmt.Sprintf("Partenaire %d", i),
			Type:        pick(r, []PartnerType{PartnerBank, PartnerInsurance, PartnerMaintenance}),
			Contact:     fmt.Sprintf("+33 1 23 45 67 %d", 80+i),
			Email:       strfmt.Email(fmt.Sprintf("contact@partenaire%d.fr", i)),
			Services:    []string{"Service 1", "Service 2"},
			ContractEnd: fmt.Sprintf("2025-%02d-28", r.IntN(12)+1),
		})
	}
	return d
}
