/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package models

import "github.com/suparena/estatestore/registry"

// Collection names used by the console.
const (
	CollectionVirtualAssistance      = "AssistanceVirtuelles"
	CollectionPropertyReviews        = "AvisNotationProprites"
	CollectionCategories             = "Categories"
	CollectionCertificates           = "Certificates"
	CollectionAdvice                 = "Conseils"
	CollectionContracts              = "Contrats"
	CollectionFavorites              = "Favoris"
	CollectionNotifications          = "Notifications"
	CollectionProperties             = "Proprietes"
	CollectionCommercialProperties   = "ProprietesUsageCommercial"
	CollectionResidentialProperties  = "ProprietesUsageResidentiel"
	CollectionAdviceTypes            = "TypeConseils"
	CollectionUserTypes              = "TypeUsers"
	CollectionUsers                  = "Users"
	CollectionChats                  = "chats"
	CollectionContacts               = "contacts"
	CollectionUserChats              = "user_chats"

	// The partner and transaction screens had no backing collection yet.
	CollectionPartners     = "Partenaires"
	CollectionTransactions = "Transactions"
)

// Collections lists every collection name above.
var Collections = []string{
	CollectionVirtualAssistance,
	CollectionPropertyReviews,
	CollectionCategories,
	CollectionCertificates,
	CollectionAdvice,
	CollectionContracts,
	CollectionFavorites,
	CollectionNotifications,
	CollectionProperties,
	CollectionCommercialProperties,
	CollectionResidentialProperties,
	CollectionAdviceTypes,
	CollectionUserTypes,
	CollectionUsers,
	CollectionChats,
	CollectionContacts,
	CollectionUserChats,
	CollectionPartners,
	CollectionTransactions,
}

func init() {
	registry.RegisterCollection[User](CollectionUsers)
	registry.RegisterCollection[Property](CollectionProperties)
	registry.RegisterCollection[Contract](CollectionContracts)
	registry.RegisterCollection[Transaction](CollectionTransactions)
	registry.RegisterCollection[Message](CollectionChats)
	registry.RegisterCollection[Partner](CollectionPartners)
	registry.RegisterCollection[Notification](CollectionNotifications)
	registry.RegisterCollection[Favorite](CollectionFavorites)
	registry.RegisterCollection[Category](CollectionCategories)
}
