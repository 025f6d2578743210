/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// enumSet describes the values of a string enum, the integer codes older records
// use for them, and accepted spelling variants.
type enumSet[E ~string] struct {
	name    string
	values  []E
	codes   map[int]E
	aliases map[string]E
}

func (s enumSet[E]) valid(v E) bool {
	for _, known := range s.values {
		if v == known {
			return true
		}
	}
	return false
}

func (s enumSet[E]) parse(text string) (E, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if v := E(text); s.valid(v) {
		return v, nil
	}
	if v, ok := s.aliases[text]; ok {
		return v, nil
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil && n == float64(int(n)) {
		if v, ok := s.codes[int(n)]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", s.name, text)
}

func (s enumSet[E]) code(v E) (int, bool) {
	for c, known := range s.codes {
		if known == v {
			return c, true
		}
	}
	return 0, false
}

// PropertyStatus is the occupancy of a property.
type PropertyStatus string

const (
	PropertyFree     PropertyStatus = "libre"
	PropertyOccupied PropertyStatus = "occupe"
	PropertyReserved PropertyStatus = "reserve"
)

var propertyStatuses = enumSet[PropertyStatus]{
	name:    "property status",
	values:  []PropertyStatus{PropertyFree, PropertyOccupied, PropertyReserved},
	codes:   map[int]PropertyStatus{0: PropertyFree, 1: PropertyOccupied, 2: PropertyReserved},
	aliases: map[string]PropertyStatus{"occupé": PropertyOccupied, "réservé": PropertyReserved},
}

func (s PropertyStatus) Valid() bool { return propertyStatuses.valid(s) }

// Code returns the legacy integer code of s.
func (s PropertyStatus) Code() (int, bool) { return propertyStatuses.code(s) }

// UnmarshalText accepts the status name or its legacy code.
func (s *PropertyStatus) UnmarshalText(b []byte) error {
	v, err := propertyStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ContractStatus is the lifecycle state of a lease.
type ContractStatus string

const (
	ContractExpired    ContractStatus = "expire"
	ContractActive     ContractStatus = "actif"
	ContractTerminated ContractStatus = "resilie"
)

var contractStatuses = enumSet[ContractStatus]{
	name:    "contract status",
	values:  []ContractStatus{ContractExpired, ContractActive, ContractTerminated},
	codes:   map[int]ContractStatus{0: ContractExpired, 1: ContractActive, 2: ContractTerminated},
	aliases: map[string]ContractStatus{"expiré": ContractExpired, "résilié": ContractTerminated, "resilié": ContractTerminated},
}

func (s ContractStatus) Valid() bool       { return contractStatuses.valid(s) }
func (s ContractStatus) Code() (int, bool) { return contractStatuses.code(s) }

func (s *ContractStatus) UnmarshalText(b []byte) error {
	v, err := contractStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UserStatus is the moderation state of an account.
type UserStatus string

const (
	UserPending UserStatus = "en_attente"
	UserActive  UserStatus = "actif"
	UserBanned  UserStatus = "banni"
)

var userStatuses = enumSet[UserStatus]{
	name:   "user status",
	values: []UserStatus{UserPending, UserActive, UserBanned},
	codes:  map[int]UserStatus{0: UserPending, 1: UserActive, 2: UserBanned},
}

func (s UserStatus) Valid() bool       { return userStatuses.valid(s) }
func (s UserStatus) Code() (int, bool) { return userStatuses.code(s) }

func (s *UserStatus) UnmarshalText(b []byte) error {
	v, err := userStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UserType is the role of an account. Legacy records store it as typeUsersId 1 to 4.
type UserType string

const (
	UserClient UserType = "client"
	UserOwner  UserType = "proprietaire"
	UserAgent  UserType = "agent"
	UserAgency UserType = "agence"
)

var userTypes = enumSet[UserType]{
	name:    "user type",
	values:  []UserType{UserClient, UserOwner, UserAgent, UserAgency},
	codes:   map[int]UserType{1: UserClient, 2: UserOwner, 3: UserAgent, 4: UserAgency},
	aliases: map[string]UserType{"propriétaire": UserOwner},
}

func (t UserType) Valid() bool       { return userTypes.valid(t) }
func (t UserType) Code() (int, bool) { return userTypes.code(t) }

func (t *UserType) UnmarshalText(b []byte) error {
	v, err := userTypes.parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ValidationStatus is the moderation state of a listing.
type ValidationStatus string

const (
	ValidationAccepted ValidationStatus = "accepte"
	ValidationRejected ValidationStatus = "rejete"
	ValidationPending  ValidationStatus = "en_attente"
)

var validationStatuses = enumSet[ValidationStatus]{
	name:    "validation status",
	values:  []ValidationStatus{ValidationAccepted, ValidationRejected, ValidationPending},
	aliases: map[string]ValidationStatus{"accepté": ValidationAccepted, "rejeté": ValidationRejected},
}

func (s ValidationStatus) Valid() bool { return validationStatuses.valid(s) }

func (s *ValidationStatus) UnmarshalText(b []byte) error {
	v, err := validationStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type SignatureStatus string

const (
	SignaturePending SignatureStatus = "en_attente"
	SignatureSigned  SignatureStatus = "signe"
)

var signatureStatuses = enumSet[SignatureStatus]{
	name:    "signature status",
	values:  []SignatureStatus{SignaturePending, SignatureSigned},
	aliases: map[string]SignatureStatus{"signé": SignatureSigned},
}

func (s SignatureStatus) Valid() bool { return signatureStatuses.valid(s) }

func (s *SignatureStatus) UnmarshalText(b []byte) error {
	v, err := signatureStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type PropertyUsage string

const (
	UsageResidential PropertyUsage = "residentiel"
	UsageCommercial  PropertyUsage = "commercial"
)

var propertyUsages = enumSet[PropertyUsage]{
	name:    "property usage",
	values:  []PropertyUsage{UsageResidential, UsageCommercial},
	aliases: map[string]PropertyUsage{"résidentiel": UsageResidential},
}

func (u PropertyUsage) Valid() bool { return propertyUsages.valid(u) }

func (u *PropertyUsage) UnmarshalText(b []byte) error {
	v, err := propertyUsages.parse(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

type TransactionType string

const (
	TransactionRent         TransactionType = "loyer"
	TransactionBookingFee   TransactionType = "frais_reservation"
	TransactionSubscription TransactionType = "abonnement"
	TransactionCommission   TransactionType = "commission"
)

var transactionTypes = enumSet[TransactionType]{
	name:   "transaction type",
	values: []TransactionType{TransactionRent, TransactionBookingFee, TransactionSubscription, TransactionCommission},
}

func (t TransactionType) Valid() bool { return transactionTypes.valid(t) }

func (t *TransactionType) UnmarshalText(b []byte) error {
	v, err := transactionTypes.parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type TransactionStatus string

const (
	TransactionPaid      TransactionStatus = "paye"
	TransactionPending   TransactionStatus = "en_attente"
	TransactionCancelled TransactionStatus = "annule"
)

var transactionStatuses = enumSet[TransactionStatus]{
	name:    "transaction status",
	values:  []TransactionStatus{TransactionPaid, TransactionPending, TransactionCancelled},
	aliases: map[string]TransactionStatus{"payé": TransactionPaid, "annulé": TransactionCancelled},
}

func (s TransactionStatus) Valid() bool { return transactionStatuses.valid(s) }

func (s *TransactionStatus) UnmarshalText(b []byte) error {
	v, err := transactionStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type MessageStatus string

const (
	MessageRead   MessageStatus = "lu"
	MessageUnread MessageStatus = "non_lu"
)

var messageStatuses = enumSet[MessageStatus]{
	name:   "message status",
	values: []MessageStatus{MessageRead, MessageUnread},
}

func (s MessageStatus) Valid() bool { return messageStatuses.valid(s) }

func (s *MessageStatus) UnmarshalText(b []byte) error {
	v, err := messageStatuses.parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type MessageType string

const (
	MessageText         MessageType = "message"
	MessageNotification MessageType = "notification"
)

var messageTypes = enumSet[MessageType]{
	name:   "message type",
	values: []MessageType{MessageText, MessageNotification},
}

func (t MessageType) Valid() bool { return messageTypes.valid(t) }

func (t *MessageType) UnmarshalText(b []byte) error {
	v, err := messageTypes.parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type PartnerType string

const (
	PartnerBank        PartnerType = "banque"
	PartnerInsurance   PartnerType = "assurance"
	PartnerMaintenance PartnerType = "maintenance"
)

var partnerTypes = enumSet[PartnerType]{
	name:   "partner type",
	values: []PartnerType{PartnerBank, PartnerInsurance, PartnerMaintenance},
}

func (t PartnerType) Valid() bool { return partnerTypes.valid(t) }

func (t *PartnerType) UnmarshalText(b []byte) error {
	v, err := partnerTypes.parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
