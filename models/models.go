/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"fmt"

	"github.com/go-openapi/strfmt"
)

// NotificationPrefs selects the push notifications a user receives.
type NotificationPrefs struct {
	Messages      bool `json:"messages"`
	NewProperties bool `json:"newProperties"`
	Payments      bool `json:"payments"`
	Reservations  bool `json:"reservations"`
	Visits        bool `json:"visits"`
}

// User is an account of the mobile application.
type User struct {

	// Record id.
	ID string `json:"id,omitempty"`

	// Identity provider uid.
	UID string `json:"uid,omitempty"`

	Nom    string `json:"nom,omitempty"`
	Prenom string `json:"prenom,omitempty"`

	// Format: email
	Email strfmt.Email `json:"email,omitempty"`

	Telephone string `json:"telephone,omitempty"`
	Adresse   string `json:"addresse,omitempty"`
	Ville     string `json:"ville,omitempty"`

	Statut UserStatus `json:"statut,omitempty"`
	Etat   UserStatus `json:"etat,omitempty"`

	// Legacy records store the role as an integer code.
	Type UserType `json:"typeUsersId,omitempty"`

	PhotoProfil string `json:"photoProfil,omitempty"`
	FCMToken    string `json:"fcmToken,omitempty"`

	// National identity card.
	CNINumber         string `json:"cniNumber,omitempty"`
	CNIDateDelivrance string `json:"CNIDateDelivrer,omitempty"`
	CNIExpiration     string `json:"cniExpirationDate,omitempty"`
	CNIRecto          string `json:"cniRecto,omitempty"`
	CNIVerso          string `json:"cniVerso,omitempty"`

	NotificationPrefs *NotificationPrefs `json:"notificationPrefs,omitempty"`

	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`

	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

// FullName joins the first and last name.
func (u User) FullName() string {
	switch {
	case u.Prenom == "":
		return u.Nom
	case u.Nom == "":
		return u.Prenom
	}
	return u.Prenom + " " + u.Nom
}

// Validate checks the enumerations and the email format.
func (u User) Validate() error {
	if u.Email != "" && !strfmt.IsEmail(string(u.Email)) {
		return fmt.Errorf("user %s: invalid email %q", u.ID, u.Email)
	}
	if u.Statut != "" && !u.Statut.Valid() {
		return fmt.Errorf("user %s: invalid status %q", u.ID, u.Statut)
	}
	if u.Type != "" && !u.Type.Valid() {
		return fmt.Errorf("user %s: invalid type %q", u.ID, u.Type)
	}
	return nil
}

// GeoPoint is a WGS84 position.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocalImage is an image still being uploaded from a device.
type LocalImage struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Size     string  `json:"size"`
	URI      string  `json:"uri"`
	Viewable bool    `json:"viewable"`
}

// Property is a listing.
type Property struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userId,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	NomType     string `json:"nomType,omitempty"`

	Usage            PropertyUsage    `json:"usage,omitempty"`
	Statut           PropertyStatus   `json:"statut,omitempty"`
	Etat             PropertyStatus   `json:"etat,omitempty"`
	ValidationStatus ValidationStatus `json:"validationStatus,omitempty"`

	Prix      float64 `json:"prix,omitempty"`
	Devise    string  `json:"devise,omitempty"`
	Frequence string  `json:"frequence,omitempty"`

	Adresse        string    `json:"adresse,omitempty"`
	Arrondissement string    `json:"arrondissement,omitempty"`
	Quartier       string    `json:"quartier,omitempty"`
	Ville          string    `json:"ville,omitempty"`
	Region         string    `json:"region,omitempty"`
	Pays           string    `json:"pays,omitempty"`
	Position       *GeoPoint `json:"position,omitempty"`

	NombrePieces     string  `json:"nombrePieces,omitempty"`
	NombreSalleBains string  `json:"nombreSalleBains,omitempty"`
	Surface          float64 `json:"surface,omitempty"`

	Favorite    int          `json:"favorite,omitempty"`
	Certificate string       `json:"certificate,omitempty"`
	Images      []string     `json:"images,omitempty"`
	LocalImages []LocalImage `json:"localImages,omitempty"`

	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`

	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

// Contract is a lease between a tenant and an owner.
type Contract struct {
	ID             string `json:"id,omitempty"`
	LocataireID    string `json:"locataireId,omitempty"`
	ProprietaireID string `json:"proprietaireId,omitempty"`
	ProprieteID    string `json:"proprieteId,omitempty"`

	DateDebut string `json:"dateDebutContrat,omitempty"`
	DateFin   string `json:"dateFinContrat,omitempty"`

	MontantParFrequence string   `json:"montantParFrequence,omitempty"`
	MontantCaution      float64  `json:"montantCaution,omitempty"`
	MontantPrevu        float64  `json:"montantPrevu,omitempty"`
	MontantVerse        float64  `json:"montantVerse,omitempty"`
	Devise              string   `json:"devise,omitempty"`
	Frequence           string   `json:"frequence,omitempty"`
	MoyensPaiement      []string `json:"moyentPayment,omitempty"`
	PaiementDueDate     string   `json:"paiementDueDate,omitempty"`

	DelaiRestitutionCaution string `json:"delaiRestitutionCaution,omitempty"`
	DureePreavis            string `json:"durrePreAvis,omitempty"`
	DureeContrat            string `json:"durreeDuContrat,omitempty"`

	Statut          ContractStatus  `json:"statut,omitempty"`
	Etat            ContractStatus  `json:"etat,omitempty"`
	SignatureStatus SignatureStatus `json:"signatureStatus,omitempty"`

	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`

	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

// Transaction is a payment recorded on the platform.
type Transaction struct {
	ID          string            `json:"id,omitempty"`
	UserID      string            `json:"userId,omitempty"`
	PropertyID  string            `json:"propertyId,omitempty"`
	Montant     float64           `json:"montant,omitempty"`
	Type        TransactionType   `json:"type,omitempty"`
	Date        string            `json:"date,omitempty"`
	Statut      TransactionStatus `json:"statut,omitempty"`
	Description string            `json:"description,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

type Message struct {
	ID         string        `json:"id,omitempty"`
	SenderID   string        `json:"senderId,omitempty"`
	ReceiverID string        `json:"receiverId,omitempty"`
	Content    string        `json:"content,omitempty"`
	Timestamp  string        `json:"timestamp,omitempty"`
	Statut     MessageStatus `json:"statut,omitempty"`
	Type       MessageType   `json:"type,omitempty"`
	Flagged    bool          `json:"flagged,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

// Partner is a bank, insurer or maintenance company working with the platform.
type Partner struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Type        PartnerType  `json:"type,omitempty"`
	Contact     string       `json:"contact,omitempty"`
	Email       strfmt.Email `json:"email,omitempty"`
	Services    []string     `json:"services,omitempty"`
	ContractEnd string       `json:"contractEnd,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

type Notification struct {
	ID      string `json:"id,omitempty"`
	UserID  string `json:"userId,omitempty"`
	Titre   string `json:"titre,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Lu      bool   `json:"lu,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

// Favorite marks a property a user follows.
type Favorite struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ProprieteID string `json:"proprieteId,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}

type Category struct {
	ID          string `json:"id,omitempty"`
	Nom         string `json:"nom,omitempty"`
	Description string `json:"description,omitempty"`

	CreatedAt *strfmt.DateTime `json:"createdAt,omitempty"`
	UpdatedAt *strfmt.DateTime `json:"updatedAt,omitempty"`
}
